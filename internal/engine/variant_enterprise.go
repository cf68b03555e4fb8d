//go:build !agent

package engine

import _ "embed"

// Variant names the decision policy linked into this binary.
const Variant = "enterprise"

//go:embed rules/enterprise.cel
var linkedRule string

var linkedKey = TokenKey{
	's', 'l', 'i', 'm', 'e', '.', 't', 'o', 'k', 'e', 'n', '.',
	'e', 'n', 't', 'e', 'r', 'p', 'r', 'i', 's', 'e', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}
