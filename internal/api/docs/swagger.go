package docs

import (
	"github.com/go-swagno/swagno"
	"github.com/go-swagno/swagno/components/endpoint"
	"github.com/go-swagno/swagno/components/http/response"
	"github.com/go-swagno/swagno/components/mime"
	"github.com/go-swagno/swagno/components/parameter"
)

// IdentityData represents a stored identity
type IdentityData struct {
	ID        int64  `json:"id" example:"1"`
	Name      string `json:"name" example:"Alice"`
	Relation  string `json:"relation" example:"Friend"`
	ImagePath string `json:"image_path" example:"assets/face_3f2a.png"`
	CreatedAt string `json:"created_at" example:"2024-01-01T00:00:00Z"`
	UpdatedAt string `json:"updated_at" example:"2024-01-01T00:00:00Z"`
}

// IdentitySummaryData represents one row of the identity listing
type IdentitySummaryData struct {
	ID        int64  `json:"id" example:"1"`
	Name      string `json:"name" example:"Alice"`
	Relation  string `json:"relation" example:"Friend"`
	ImagePath string `json:"image_path" example:"assets/face_3f2a.png"`
}

// ListIdentitiesResponse represents the identity listing
type ListIdentitiesResponse struct {
	Identities []IdentitySummaryData `json:"identities"`
	Count      int                   `json:"count" example:"1"`
}

// UpdateIdentityRequest represents an identity edit
type UpdateIdentityRequest struct {
	Name     string `json:"name" example:"Alice"`
	Relation string `json:"relation" example:"Sister"`
}

// EnrollResponse represents a finished one-shot enrollment
type EnrollResponse struct {
	Identity IdentityData `json:"identity"`
	Frames   int          `json:"frames" example:"20"`
	Accepted int          `json:"accepted" example:"18"`
}

// BoundingBoxData represents a detection box in pixels
type BoundingBoxData struct {
	X1 int `json:"x1" example:"120"`
	Y1 int `json:"y1" example:"80"`
	X2 int `json:"x2" example:"280"`
	Y2 int `json:"y2" example:"260"`
}

// MatchResultData represents the gallery match for a face
type MatchResultData struct {
	Matched    bool    `json:"matched" example:"true"`
	IdentityID int64   `json:"identity_id,omitempty" example:"1"`
	Name       string  `json:"name" example:"Alice"`
	Relation   string  `json:"relation" example:"Friend"`
	Score      float64 `json:"score" example:"87.5"`
}

// RecognitionResponse represents a recognized frame
type RecognitionResponse struct {
	Detected bool            `json:"detected" example:"true"`
	Faces    int             `json:"faces" example:"1"`
	Box      BoundingBoxData `json:"bbox"`
	Result   MatchResultData `json:"result"`
}

// SessionCommandRequest represents a command to the live session
type SessionCommandRequest struct {
	Command  string `json:"command" example:"start_enrollment"`
	Name     string `json:"name,omitempty" example:"Alice"`
	Relation string `json:"relation,omitempty" example:"Friend"`
}

// SessionSnapshot represents the live session state
type SessionSnapshot struct {
	Mode            string               `json:"mode" example:"recognition"`
	Camera          int                  `json:"camera" example:"0"`
	Status          string               `json:"status" example:"Detected: Alice"`
	Confidence      string               `json:"confidence,omitempty" example:"Confidence: 87.50%"`
	EnrollmentState string               `json:"enrollment_state" example:"idle"`
	Last            *RecognitionResponse `json:"last,omitempty"`
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Code    string `json:"code" example:"VALIDATION_FAILED"`
	Message string `json:"message" example:"Request validation failed"`
}

// EmptyResponse represents no content response (204)
type EmptyResponse struct{}

var internalError = response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error")

var idParam = parameter.IntParam("id", parameter.Path, parameter.WithRequired(), parameter.WithDescription("Identity id"))

// NewSwagger creates and configures the Swagger documentation
func NewSwagger() *swagno.Swagger {
	sw := swagno.New(swagno.Config{
		Title:       "Kinface API",
		Version:     "v1.0.0",
		Description: "Enroll people from camera frames and recognize them against the stored gallery",
		Host:        "localhost:3000",
		Path:        "/v1",
	})

	endpoints := []*endpoint.EndPoint{
		// Identities

		// GET /v1/identities - List identities
		endpoint.New(
			endpoint.GET,
			"/identities",
			endpoint.WithTags("Identities"),
			endpoint.WithSummary("List identities"),
			endpoint.WithDescription("Returns every enrolled identity in id order"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(ListIdentitiesResponse{}, "200", "OK"),
			}),
			endpoint.WithErrors([]response.Response{internalError}),
		),

		// GET /v1/identities/{id} - Get identity
		endpoint.New(
			endpoint.GET,
			"/identities/{id}",
			endpoint.WithTags("Identities"),
			endpoint.WithSummary("Get an identity"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(idParam),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(IdentityData{}, "200", "OK"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "BAD_REQUEST", Message: "Invalid request"}, "400", "Bad Request"),
				response.New(ErrorResponse{Code: "IDENTITY_NOT_FOUND", Message: "Identity not found"}, "404", "Not Found"),
				internalError,
			}),
		),

		// PATCH /v1/identities/{id} - Edit identity
		endpoint.New(
			endpoint.PATCH,
			"/identities/{id}",
			endpoint.WithTags("Identities"),
			endpoint.WithSummary("Edit an identity"),
			endpoint.WithDescription("Changes name and relation. The embedding and image are kept."),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(idParam),
			endpoint.WithBody(UpdateIdentityRequest{}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(IdentityData{}, "200", "Identity updated"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "IDENTITY_NOT_FOUND", Message: "Identity not found"}, "404", "Not Found"),
				response.New(ErrorResponse{Code: "VALIDATION_FAILED", Message: "Request validation failed"}, "422", "Unprocessable Entity"),
				internalError,
			}),
		),

		// DELETE /v1/identities/{id} - Delete identity
		endpoint.New(
			endpoint.DELETE,
			"/identities/{id}",
			endpoint.WithTags("Identities"),
			endpoint.WithSummary("Delete an identity"),
			endpoint.WithDescription("Removes the record and its stored face image"),
			endpoint.WithParams(idParam),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EmptyResponse{}, "204", "Identity deleted"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "IDENTITY_NOT_FOUND", Message: "Identity not found"}, "404", "Not Found"),
				internalError,
			}),
		),

		// GET /v1/identities/{id}/image - Face image
		endpoint.New(
			endpoint.GET,
			"/identities/{id}/image",
			endpoint.WithTags("Identities"),
			endpoint.WithSummary("Get the stored face image"),
			endpoint.WithProduce([]mime.MIME{mime.MIME("image/png")}),
			endpoint.WithParams(idParam),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EmptyResponse{}, "200", "256x256 PNG"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "NOT_FOUND", Message: "Resource not found"}, "404", "Not Found"),
				internalError,
			}),
		),

		// Faces

		// POST /v1/enroll - One-shot enrollment
		endpoint.New(
			endpoint.POST,
			"/enroll",
			endpoint.WithTags("Faces"),
			endpoint.WithSummary("Enroll a person from uploaded frames"),
			endpoint.WithDescription("Runs the frames through a fresh capture session and stores the mean embedding with the sharpest face crop"),
			endpoint.WithConsume([]mime.MIME{mime.MIME("multipart/form-data")}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("name", parameter.Form, parameter.WithRequired()),
				parameter.StrParam("relation", parameter.Form, parameter.WithRequired()),
				parameter.FileParam("frames", parameter.WithRequired(), parameter.WithDescription("JPEG, PNG or BMP frames, repeated")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EnrollResponse{}, "201", "Identity created"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "ILLEGAL_ARGUMENT", Message: "Name and relation are required"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "INVALID_IMAGE", Message: "Invalid image format or corrupted file"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "NO_SAMPLES_CAPTURED", Message: "No faces captured, try again"}, "422", "Unprocessable Entity"),
				internalError,
			}),
		),

		// POST /v1/recognize - Recognize one image
		endpoint.New(
			endpoint.POST,
			"/recognize",
			endpoint.WithTags("Faces"),
			endpoint.WithSummary("Recognize the first face in an image"),
			endpoint.WithConsume([]mime.MIME{mime.MIME("multipart/form-data")}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.FileParam("image", parameter.WithRequired()),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(RecognitionResponse{}, "200", "Match result, Unknown when nothing clears the threshold"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "INVALID_IMAGE", Message: "Invalid image format or corrupted file"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "NO_FACE_DETECTED", Message: "No face detected in the image"}, "422", "Unprocessable Entity"),
				internalError,
			}),
		),

		// Session

		// GET /v1/session - Session state
		endpoint.New(
			endpoint.GET,
			"/session",
			endpoint.WithTags("Session"),
			endpoint.WithSummary("Get the live session state"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(SessionSnapshot{}, "200", "OK"),
			}),
		),

		// POST /v1/session/commands - Session command
		endpoint.New(
			endpoint.POST,
			"/session/commands",
			endpoint.WithTags("Session"),
			endpoint.WithSummary("Send a command to the live session"),
			endpoint.WithDescription("One of preview_enrollment, start_enrollment, start_recognition, switch_camera, stop"),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithBody(SessionCommandRequest{}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(SessionSnapshot{}, "202", "Command accepted"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "BAD_REQUEST", Message: "Invalid request"}, "400", "Bad Request"),
				response.New(ErrorResponse{Code: "SESSION_ACTIVE", Message: "A capture session is already running"}, "409", "Conflict"),
				response.New(ErrorResponse{Code: "ILLEGAL_ARGUMENT", Message: "Name and relation are required"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "DEVICE_UNAVAILABLE", Message: "Unable to access camera"}, "503", "Service Unavailable"),
			}),
		),
	}

	sw.AddEndpoints(endpoints)

	return sw
}
