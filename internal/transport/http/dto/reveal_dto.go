package dto

type RevealResponse struct {
	State string `json:"state"`
}

type RevealDecisionRequest struct {
	Approve bool `json:"approve"`
}
