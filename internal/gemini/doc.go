// Package gemini implements advisor.Generator on top of the Gemini
// generateContent REST API.
//
// # Request Format
//
// Each call posts the whole conversation:
//
//	POST {BaseURL}/v1beta/models/{model}:generateContent
//	x-goog-api-key: <key>
//
//	{
//	  "contents": [{"role": "model", "parts": [{"text": "Bonjour !..."}]},
//	               {"role": "user",  "parts": [{"text": "Pourquoi GPT ?"}]}],
//	  "systemInstruction": {"parts": [{"text": "You are \"Win11 BootAssistant\"..."}]},
//	  "generationConfig": {"temperature": 0.7}
//	}
//
// The reply is the concatenated text of the first candidate's parts.
//
// # Error Handling
//
// Every failure is an *APIError with a Type:
//   - ErrTypeConfig: no API key (detected before any network call)
//   - ErrTypeAuth: HTTP 401/403, the key was rejected
//   - ErrTypeRateLimit: HTTP 429
//   - ErrTypeHTTP: other non-200 responses
//   - ErrTypeParse: malformed JSON or a reply without text
//   - ErrTypeBlocked: the prompt or reply was blocked by safety filters
//   - ErrTypeTimeout, ErrTypeConnectionRefused, ErrTypeDNS, ErrTypeNetwork:
//     transport failures classified by ClassifyNetworkError
//
// GetShortErrorMessage and GetTroubleshootingHint turn an error, including
// advisor.ErrMissingCredential and advisor.ErrEmptyReply, into text for
// 'bootmaster ask'.
//
// Each question is a single request. Failures are never retried; the
// advisor answers them with its fallback message.
package gemini
