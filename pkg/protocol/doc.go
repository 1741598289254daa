// Package protocol implements the one-file-per-connection transfer session
// spoken between the labship watcher and server.
//
// A session carries exactly one file:
//
//	client                                 server
//	FILE_NAME<name>          ---->
//	                         <----  FILENAME_RECEIVED | ERROR
//	<content>...             ---->
//	END_OF_TRANSMISSION      ---->
//	                         <----  FILE_CONTENTS_RECEIVED
//
// The tokens are literal UTF-8 strings. Two framings carry them:
//
//   - FramingLegacy writes tokens and content as raw bytes, exactly like the
//     existing Windows watcher. Message boundaries are inferred from the
//     token vocabulary. The receiver holds back the last few bytes of each
//     read so a terminator split across reads is still found, but content
//     that itself ends in END_OF_TRANSMISSION at a pause in the stream is
//     indistinguishable from the terminator.
//   - FramingLengthPrefixed wraps every message in a 5-byte header (kind,
//     big-endian length). Tokens keep their text; content can never be
//     mistaken for one. Both peers must be configured for it.
//
// [Sender] drives the client half and [Receiver] the server half. Both
// track progress with a [Session] state machine and return
// *domain.TransferError values classified by kind.
package protocol
