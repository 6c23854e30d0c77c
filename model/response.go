package model

// SuccessResponse wraps every successful JSON body.
type SuccessResponse struct {
	Data any            `json:"data"`
	Meta map[string]any `json:"meta,omitempty"`
}

type SignupResponse struct {
	ID    int64  `json:"id" example:"1"`
	Email string `json:"email" example:"user1@example.com"`
}

type MeResponse struct {
	ID    int64  `json:"id" example:"1"`
	Email string `json:"email" example:"user1@example.com"`
	Role  Role   `json:"role" example:"user"`
}

type AdminOnlyResponse struct {
	OK    bool   `json:"ok"`
	Admin string `json:"admin" example:"admin1@example.com"`
}

type PingResponse struct {
	OK     bool   `json:"ok"`
	Domain string `json:"domain" example:"members"`
}

type OKResponse struct {
	OK bool `json:"ok"`
}
