package response

import (
	"bytes"
	"strconv"
	"testing"

	"github.com/danmuck/slime/internal/testutil/testlog"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
)

func TestResponsesMatchGolden(t *testing.T) {
	testlog.Start(t)
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	cases := map[string]Response{
		"invalid_content_length": InvalidContentLength,
		"missing_body":           MissingBody,
		"invalid_schema":         InvalidSchema,
		"payload_too_large":      PayloadTooLarge,
		"authorized":             Authorized,
		"impossible":             Impossible,
	}
	for name, resp := range cases {
		g.Assert(t, name, resp.Bytes())
	}
}

func TestContentLengthMatchesBody(t *testing.T) {
	testlog.Start(t)
	expected := map[string]int{
		InvalidContentLength.Body: 62,
		MissingBody.Body:          52,
		InvalidSchema.Body:        54,
		PayloadTooLarge.Body:      61,
		Authorized.Body:           23,
		Impossible.Body:           23,
	}
	for _, resp := range []Response{InvalidContentLength, MissingBody, InvalidSchema, PayloadTooLarge, Authorized, Impossible} {
		wire := resp.Bytes()
		split := bytes.Index(wire, []byte("\r\n\r\n"))
		if !assert.Greater(t, split, 0) {
			continue
		}
		body := wire[split+4:]
		assert.Equal(t, resp.Body, string(body))
		assert.Equal(t, expected[resp.Body], len(body))
		assert.Contains(t, string(wire[:split]), "Content-Length: "+strconv.Itoa(len(body)))
	}
}

func TestStatusCodes(t *testing.T) {
	testlog.Start(t)
	assert.Equal(t, 400, InvalidContentLength.Status)
	assert.Equal(t, 400, MissingBody.Status)
	assert.Equal(t, 400, InvalidSchema.Status)
	assert.Equal(t, 413, PayloadTooLarge.Status)
	assert.Equal(t, 200, Authorized.Status)
	assert.Equal(t, 200, Impossible.Status)
	assert.True(t, bytes.HasPrefix(PayloadTooLarge.Bytes(), []byte("HTTP/1.1 413 Payload Too Large\r\n")))
}
