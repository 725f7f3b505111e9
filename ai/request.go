package ai

type GPTRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func NewRequest(content, model string) *GPTRequest {
	return &GPTRequest{
		Model:       model,
		Messages:    []Message{{Role: "user", Content: content}},
		Temperature: 0.7,
	}
}

// VisionRequest represents a chat completion request carrying an image part.
// No temperature is set: image descriptions use the model defaults.
type VisionRequest struct {
	Model    string          `json:"model"`
	Messages []VisionMessage `json:"messages"`
}

type VisionMessage struct {
	Role    string        `json:"role"`
	Content []ContentPart `json:"content"`
}

type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

type ImageURL struct {
	URL string `json:"url"`
}

// NewVisionRequest builds a single-message request with a text prompt
// and one image passed as a base64 data URI
func NewVisionRequest(model, prompt, dataURI string) *VisionRequest {
	return &VisionRequest{
		Model: model,
		Messages: []VisionMessage{
			{
				Role: "user",
				Content: []ContentPart{
					{Type: "text", Text: prompt},
					{Type: "image_url", ImageURL: &ImageURL{URL: dataURI}},
				},
			},
		},
	}
}
