package domain

import "github.com/google/uuid"

type (
	ImageId   = uuid.UUID
	OwnerId   = uuid.UUID
	ImageName = string
	MimeType  = string
)
