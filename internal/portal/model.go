package portal

import "errors"

var (
	ErrEmptyCredentials  = errors.New("JAMB number and password are required")
	ErrSplashActive      = errors.New("portal is still starting")
	ErrNotLoggedIn       = errors.New("not logged in")
	ErrUnknownView       = errors.New("unknown view")
	ErrInvalidTransition = errors.New("view is not reachable from the current view")
)

type View string

const (
	ViewSplash        View = "splash"
	ViewLogin         View = "login"
	ViewDashboard     View = "dashboard"
	ViewRegistration  View = "registration"
	ViewResults       View = "results"
	ViewNotifications View = "notifications"
	ViewTimetable     View = "timetable"
	ViewProfile       View = "profile"
)

// FeatureViews are reachable from the dashboard and lead only back to it.
var FeatureViews = []View{
	ViewRegistration,
	ViewResults,
	ViewNotifications,
	ViewTimetable,
	ViewProfile,
}

func (v View) IsFeature() bool {
	for _, f := range FeatureViews {
		if f == v {
			return true
		}
	}
	return false
}

func (v View) Valid() bool {
	return v == ViewSplash || v == ViewLogin || v == ViewDashboard || v.IsFeature()
}

// ComingSoon reports views that only render a placeholder.
func (v View) ComingSoon() bool {
	return v == ViewTimetable || v == ViewProfile
}

type State struct {
	View       View `json:"view"`
	LoggedIn   bool `json:"loggedIn"`
	ComingSoon bool `json:"comingSoon,omitempty"`
}

type MenuItem struct {
	View        View   `json:"view"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Badge       int    `json:"badge,omitempty"`
}

type Dashboard struct {
	StudentName string     `json:"studentName"`
	View        View       `json:"view"`
	Menu        []MenuItem `json:"menu"`
	UnreadCount int        `json:"unreadCount"`
}

type LoginRequest struct {
	JAMBNumber string `json:"jambNumber" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

type NavigateRequest struct {
	View View `json:"view" validate:"required"`
}
