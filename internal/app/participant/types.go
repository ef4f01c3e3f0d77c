package participant

// FormEntry is one row of the registration form.
type FormEntry struct {
	Email          string
	FullName       string
	MemberID       string
	PreferredEmail string
	Side           string
}
