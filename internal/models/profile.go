package models

// ProfileDocument is the normalized text rendering of one upstream profile.
// Every field is always present; a section the source lacks is "".
type ProfileDocument struct {
	FullName       string `json:"full_name"`
	Summary        string `json:"summary"`
	Experience     string `json:"experience"`
	Education      string `json:"education"`
	Projects       string `json:"projects"`
	Honors         string `json:"honors"`
	Certifications string `json:"certifications"`
	Publications   string `json:"publications"`
	Volunteer      string `json:"volunteer"`
	Skills         string `json:"skills"`
	Languages      string `json:"languages"`
	Posts          string `json:"posts"`
}
