package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MikhailRaia/url-mapper/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequireToken(t *testing.T) {
	jwtService := auth.NewJWTService("secret")
	valid, err := jwtService.GenerateToken("ops")
	require.NoError(t, err)

	tests := []struct {
		name         string
		jwtService   *auth.JWTService
		header       *string
		wantStatus   int
		wantOperator string
	}{
		{
			name:       "missing header",
			header:     nil,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "empty header accepted without jwt",
			header:     strPtr(""),
			wantStatus: http.StatusOK,
		},
		{
			name:       "empty header rejected with jwt",
			jwtService: jwtService,
			header:     strPtr(""),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:         "valid jwt",
			jwtService:   jwtService,
			header:       &valid,
			wantStatus:   http.StatusOK,
			wantOperator: "ops",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotOperator string
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotOperator, _ = GetOperatorFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/url_maps", nil)
			if tt.header != nil {
				req.Header[AuthorizationHeader] = []string{*tt.header}
			}
			rec := httptest.NewRecorder()

			NewAuthMiddleware(tt.jwtService).RequireToken(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantOperator, gotOperator)
		})
	}
}

func strPtr(s string) *string { return &s }
