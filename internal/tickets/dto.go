package tickets

// CreateInput opens a ticket. Priority defaults to medium.
type CreateInput struct {
	Subject  string `json:"subject" validate:"required"`
	Message  string `json:"message" validate:"required"`
	Priority string `json:"priority,omitempty" validate:"omitempty,oneof=low medium high"`
}

// ResponseInput appends a reply to a ticket thread.
type ResponseInput struct {
	Message string `json:"message" validate:"required"`
}

// StatusInput is an operator status change.
type StatusInput struct {
	Status string `json:"status" validate:"required,oneof=open in_progress resolved closed"`
}
