package session

import "testing"

func TestDecide(t *testing.T) {
	authed := &Session{Token: "tok", Username: "alice"}

	tests := []struct {
		name   string
		sess   *Session
		target View
		want   Decision
	}{
		{"anonymous reaches login", nil, ViewLogin, Allow},
		{"anonymous reaches register", nil, ViewRegister, Allow},
		{"anonymous denied upload", nil, ViewUpload, RedirectToLogin},
		{"anonymous denied chat", nil, ViewChat, RedirectToLogin},
		{"authenticated redirected off login", authed, ViewLogin, RedirectToMain},
		{"authenticated redirected off register", authed, ViewRegister, RedirectToMain},
		{"authenticated reaches upload", authed, ViewUpload, Allow},
		{"authenticated reaches chat", authed, ViewChat, Allow},
		{"empty token counts as anonymous", &Session{}, ViewChat, RedirectToLogin},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Decide(tc.sess, tc.target); got != tc.want {
				t.Fatalf("Decide(%v, %v) = %v, want %v", tc.sess, tc.target, got, tc.want)
			}
		})
	}
}
