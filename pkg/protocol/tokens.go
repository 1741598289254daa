package protocol

// Wire tokens. The exact strings are the contract with legacy peers.
const (
	TokenFileName          = "FILE_NAME"
	TokenFileNameReceived  = "FILENAME_RECEIVED"
	TokenError             = "ERROR"
	TokenEndOfTransmission = "END_OF_TRANSMISSION"
	TokenContentsReceived  = "FILE_CONTENTS_RECEIVED"
)

const (
	// handshakeReadSize matches the legacy server's single recv of the name.
	handshakeReadSize = 2048

	// replyReadSize matches the legacy client's recv of a reply token.
	replyReadSize = 4096

	// ChunkSize is the size of content reads and data frames.
	ChunkSize = 32 << 10

	// MaxFrameSize bounds a single length-prefixed frame.
	MaxFrameSize = 16 << 20
)
