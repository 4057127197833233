package main

const (
	MsgMissingImages    = "Both person and dress images are required"
	MsgInvalidFileType  = "Invalid file type. Only JPEG, PNG, and WebP images are allowed."
	MsgFileTooLarge     = "File too large. Maximum size is %dMB per image."
	MsgTooManyFiles     = "Only one image per field is allowed"
	MsgUnexpectedField  = "Unexpected file field: %s"
	MsgInvalidForm      = "Invalid multipart form"
	MsgGenerateFailed   = "Failed to generate virtual try-on image"
	MsgRouteNotFound    = "Route not found"
	MsgMethodNotAllowed = "Method not allowed"
	MsgInternalError    = "Internal server error"
)
