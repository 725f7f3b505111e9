package core

type CaptionService interface {
	DescribeImage(userId int64, image []byte, mimeType, titleHint string) (string, error)
	History(userId int64, limit int) []string
	ClearHistory(userId int64)
}
