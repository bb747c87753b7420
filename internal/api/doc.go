// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for the AIMedNow QnA/EHR service.
//
// # Endpoints
//
//   - POST {base}/api/qna: JSON {"text": prompt} -> {answer, classification, source}
//   - POST {base}/api/upload_ehr: multipart "file" -> {answer, is_doctor_note,
//     original_text, simplified_text}
//
// # Errors
//
// Every failure is a *ClientError whose Type says whether the service was
// unreachable, timed out, was cancelled, or sent something unusable. Callers
// show one fixed message per call site and log the type.
//
// # Usage
//
//	client := api.NewClientWithConfig(&api.ClientConfig{BaseURL: "http://localhost:5000"})
//	resp, err := client.Ask(ctx, "What is the dosage?")
//	if err != nil {
//	    log.Printf("qna failed (%s): %v", api.TypeOf(err), err)
//	}
package api
