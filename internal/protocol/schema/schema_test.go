package schema

import (
	"fmt"
	"strconv"
	"testing"

	"github.com/danmuck/slime/internal/testutil/testlog"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExactShape(t *testing.T) {
	testlog.Start(t)
	got, err := Parse([]byte(`{"domain":"test","magnitude":10,"payload":""}`))
	require.NoError(t, err)
	assert.Equal(t, "test", string(got.Domain))
	assert.Equal(t, uint64(10), got.Magnitude)
	assert.Empty(t, got.Payload)
}

func TestParseTokens(t *testing.T) {
	testlog.Start(t)
	got, err := Parse([]byte(`{"domain":"Valve_7-b","magnitude":18446744073709551615,"payload":"aGVsbG8="}`))
	require.NoError(t, err)
	assert.Equal(t, "Valve_7-b", string(got.Domain))
	assert.Equal(t, ^uint64(0), got.Magnitude)
	assert.Equal(t, "aGVsbG8=", string(got.Payload))

	got, err = Parse([]byte(`{"domain":"x","magnitude":007,"payload":"not base64 but a token"}`))
	require.NoError(t, err)
	assert.Equal(t, uint64(7), got.Magnitude)
	assert.Equal(t, "not base64 but a token", string(got.Payload))
}

func TestParseRejectsDeviations(t *testing.T) {
	testlog.Start(t)
	cases := map[string]string{
		"empty":                ``,
		"missing payload":      `{"domain":"test","magnitude":10}`,
		"missing magnitude":    `{"domain":"test","payload":""}`,
		"reordered":            `{"magnitude":10,"domain":"test","payload":""}`,
		"leading space":        ` {"domain":"test","magnitude":10,"payload":""}`,
		"inner space":          `{"domain": "test","magnitude":10,"payload":""}`,
		"space before comma":   `{"domain":"test","magnitude":10 ,"payload":""}`,
		"trailing newline":     "{\"domain\":\"test\",\"magnitude\":10,\"payload\":\"\"}\n",
		"trailing byte":        `{"domain":"test","magnitude":10,"payload":""}}`,
		"extra field":          `{"domain":"test","magnitude":10,"payload":"","x":1}`,
		"empty domain":         `{"domain":"","magnitude":10,"payload":""}`,
		"domain dot":           `{"domain":"a.b","magnitude":10,"payload":""}`,
		"domain space":         `{"domain":"a b","magnitude":10,"payload":""}`,
		"domain escape":        `{"domain":"a\"b","magnitude":10,"payload":""}`,
		"domain non-ascii":     `{"domain":"dömain","magnitude":10,"payload":""}`,
		"magnitude string":     `{"domain":"test","magnitude":"10","payload":""}`,
		"magnitude empty":      `{"domain":"test","magnitude":,"payload":""}`,
		"magnitude negative":   `{"domain":"test","magnitude":-1,"payload":""}`,
		"magnitude plus":       `{"domain":"test","magnitude":+1,"payload":""}`,
		"magnitude float":      `{"domain":"test","magnitude":1.5,"payload":""}`,
		"magnitude exponent":   `{"domain":"test","magnitude":1e3,"payload":""}`,
		"magnitude overflow":   `{"domain":"test","magnitude":18446744073709551616,"payload":""}`,
		"payload unterminated": `{"domain":"test","magnitude":10,"payload":"abc}`,
		"payload number":       `{"domain":"test","magnitude":10,"payload":5}`,
		"truncated close":      `{"domain":"test","magnitude":10,"payload":""`,
	}
	for name, body := range cases {
		_, err := Parse([]byte(body))
		assert.ErrorIs(t, err, ErrMismatch, name)
	}
}

func TestParseProperties(t *testing.T) {
	testlog.Start(t)
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	domainGen := gen.RegexMatch(`[A-Za-z0-9_-]{1,24}`)
	payloadGen := gen.RegexMatch(`[A-Za-z0-9+/]{0,40}={0,2}`)

	properties.Property("exact bodies parse to their parts", prop.ForAll(
		func(domain string, magnitude uint64, payload string) bool {
			body := fmt.Sprintf(`{"domain":"%s","magnitude":%s,"payload":"%s"}`, domain, strconv.FormatUint(magnitude, 10), payload)
			got, err := Parse([]byte(body))
			return err == nil &&
				string(got.Domain) == domain &&
				got.Magnitude == magnitude &&
				string(got.Payload) == payload
		},
		domainGen, gen.UInt64(), payloadGen,
	))

	properties.Property("any trailing byte fails the parse", prop.ForAll(
		func(domain string, magnitude uint64, suffix string) bool {
			body := fmt.Sprintf(`{"domain":"%s","magnitude":%d,"payload":""}%s`, domain, magnitude, suffix)
			_, err := Parse([]byte(body))
			return err != nil
		},
		domainGen, gen.UInt64(), gen.AnyString().SuchThat(func(s string) bool { return s != "" }),
	))

	properties.TestingRun(t)
}
