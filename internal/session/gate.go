package session

// View names the navigable screens of the application.
type View int

const (
	ViewLogin View = iota
	ViewRegister
	ViewUpload
	ViewChat
)

func (v View) String() string {
	switch v {
	case ViewLogin:
		return "login"
	case ViewRegister:
		return "register"
	case ViewUpload:
		return "upload"
	case ViewChat:
		return "chat"
	default:
		return "unknown"
	}
}

// Decision is the routing outcome for one navigation request.
type Decision int

const (
	Allow Decision = iota
	RedirectToLogin
	RedirectToMain
)

// Decide gates navigation from the current session state. Without a session
// only the login and registration views are reachable; with one, requests
// for those views redirect to the main application view. Pure function, no
// side effects.
func Decide(sess *Session, target View) Decision {
	public := target == ViewLogin || target == ViewRegister
	if sess == nil || sess.Token == "" {
		if public {
			return Allow
		}
		return RedirectToLogin
	}
	if public {
		return RedirectToMain
	}
	return Allow
}
