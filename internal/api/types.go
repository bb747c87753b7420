// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

// ClassificationEmergency is the classification that switches an answer to
// the sources-plus-notice rendering.
const ClassificationEmergency = "emergency"

// QnARequest is the body of POST /api/qna.
type QnARequest struct {
	Text string `json:"text"`
}

// QnAResponse is the body returned by /api/qna.
// Answer and Source are pointers so an absent field can be told from "".
type QnAResponse struct {
	Answer         *string `json:"answer"`
	Classification string  `json:"classification,omitempty"`
	Source         *string `json:"source,omitempty"`
}

// IsEmergency reports whether the answer must be rendered as an emergency.
func (r *QnAResponse) IsEmergency() bool {
	return r.Classification == ClassificationEmergency
}

// AnswerText returns the answer, or "" when absent.
func (r *QnAResponse) AnswerText() string {
	if r.Answer == nil {
		return ""
	}
	return *r.Answer
}

// SourceText returns the source, or "" when absent.
func (r *QnAResponse) SourceText() string {
	if r.Source == nil {
		return ""
	}
	return *r.Source
}

// UploadResult is the body returned by /api/upload_ehr.
type UploadResult struct {
	Answer         *string `json:"answer"`
	IsDoctorNote   bool    `json:"is_doctor_note"`
	OriginalText   string  `json:"original_text,omitempty"`
	SimplifiedText string  `json:"simplified_text,omitempty"`
}

// AnswerText returns the description, or "" when absent.
func (r *UploadResult) AnswerText() string {
	if r.Answer == nil {
		return ""
	}
	return *r.Answer
}
