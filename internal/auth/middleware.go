package auth

import (
	"encoding/json"
	"net/http"
)

const UnauthorizedMessage = "Debes iniciar sesión para realizar esta acción."

// RequireSession rejects requests whose session fails the gate. Mutation
// routes sit behind it so the gate is enforced by the server, not only by
// what the pages choose to render.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !Gate(r.Context()) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": UnauthorizedMessage})
			return
		}
		next.ServeHTTP(w, r)
	})
}
