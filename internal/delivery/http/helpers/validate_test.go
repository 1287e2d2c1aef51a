package helpers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingRequest struct {
	Name string `json:"name"`
}

func (p pingRequest) Validate() []string {
	if p.Name == "" {
		return []string{"name is required"}
	}
	return nil
}

func TestDecodeAndValidate(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantOK  bool
		wantMsg string
	}{
		{name: "valid", body: `{"name":"x"}`, wantOK: true},
		{name: "unknown field", body: `{"name":"x","extra":1}`, wantMsg: "unknown field"},
		{name: "malformed", body: `{`, wantMsg: "unexpected EOF"},
		{name: "validation", body: `{}`, wantMsg: "name is required"},
		{name: "empty body", body: ``, wantMsg: "request body is empty"},
		{name: "trailing object", body: `{"name":"x"}{"name":"y"}`, wantMsg: "single JSON object"},
		{name: "wrong type", body: `{"name":1}`, wantMsg: "name has the wrong type"},
		{name: "syntax error", body: `{"name":}`, wantMsg: "malformed JSON"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var req pingRequest
			ok := DecodeAndValidate(rr, r, &req)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				return
			}
			require.Equal(t, http.StatusBadRequest, rr.Code)
			var resp APIResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
			require.NotNil(t, resp.Error)
			assert.Equal(t, ErrCodeBadRequest, resp.Error.Code)
			assert.Contains(t, resp.Error.Message, tt.wantMsg)
		})
	}
}
