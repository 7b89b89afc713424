package domain

type FAQ struct {
	ID       string `json:"id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type Testimonial struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Role      string  `json:"role,omitempty"`
	Quote     string  `json:"quote"`
	Rating    float64 `json:"rating,omitempty"`
	AvatarURL string  `json:"avatar_url,omitempty"`
}
