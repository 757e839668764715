package model

import "time"

// Semester and member-type values accepted by the team-member list filter
// and by create/update validation. The sets are fixed by the site's content
// policy, not user-extensible.
const (
	SemesterFall2024   = "Fall 2024"
	SemesterSpring2025 = "Spring 2025"

	MemberTypeDeveloper  = "Developer"
	MemberTypeResearcher = "Researcher"
	MemberTypeAdmin      = "Admin"
)

// ValidSemester reports whether s is one of the recognized semester values.
func ValidSemester(s string) bool {
	return s == SemesterFall2024 || s == SemesterSpring2025
}

// ValidMemberType reports whether s is one of the recognized member types.
func ValidMemberType(s string) bool {
	return s == MemberTypeDeveloper || s == MemberTypeResearcher || s == MemberTypeAdmin
}

// TeamMember is a roster entry on the about page. Each member has at most
// one portrait image, stored in team_member_images and cascade-deleted with
// the member row.
type TeamMember struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Role        string    `json:"role" db:"role"`
	GitHubURL   string    `json:"github_url" db:"github_url"`
	LinkedInURL string    `json:"linkedin_url" db:"linkedin_url"`
	Semester    string    `json:"semester" db:"semester"`
	MemberType  string    `json:"member_type" db:"member_type"`
	Founder     bool      `json:"founder" db:"founder"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
