package admission

// Person is the applicant/signatory profile resolved from the central
// identity registry.
type Person struct {
	Matricule  string `json:"matricule"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	Language   string `json:"language"` // ISO 639-1
	IsExternal bool   `json:"is_external"`
}

func (p Person) FullName() string {
	if p.FirstName == "" {
		return p.LastName
	}
	return p.FirstName + " " + p.LastName
}

type PersonRepository interface {
	// GetPerson returns ErrPersonNotFound when the matricule is unknown.
	GetPerson(matricule string) (Person, error)
}
