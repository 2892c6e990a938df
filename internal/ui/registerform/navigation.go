package registerform

// Navigation targets.
const (
	LoginPath    = "/login"
	RegisterPath = "/register"
)

// Link is a navigation affordance between entry points.
type Link struct {
	Text string
	Path string
}

// LoginLink is offered on the registration page, RegisterLink on the login page.
//
//nolint:gochecknoglobals
var (
	LoginLink    = Link{Text: "Already have an account? Login here.", Path: LoginPath}
	RegisterLink = Link{Text: "Don't have an account? Register here.", Path: RegisterPath}
)

// Navigator moves the user to another entry point.
type Navigator interface {
	Navigate(path string)
}
