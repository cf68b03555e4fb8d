//go:build agent

package engine

import _ "embed"

// Variant names the decision policy linked into this binary.
const Variant = "agent"

//go:embed rules/agent.cel
var linkedRule string

var linkedKey = TokenKey{
	's', 'l', 'i', 'm', 'e', '.', 't', 'o', 'k', 'e', 'n', '.',
	'a', 'g', 'e', 'n', 't', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}
