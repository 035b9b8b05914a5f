// Package mailbox keeps a stateful client session over an IMAP mailbox.
//
// A Session covers the handful of operations a mail-processing job needs:
//
//   - Connecting with credentials described by a c-client style address
//     token such as "{imap.example.com/imap2/tls}"
//   - Listing folders and switching the active one, including a
//     case-insensitive substring match
//   - Paging through message headers and MIME structures into a local cache
//   - Searching with the classic criteria language ("UNSEEN FROM bob")
//   - Extracting and decoding top-level MIME attachments
//   - Moving messages and handing outbound mail to a Sender
//
// The wire protocol is provided by github.com/emersion/go-imap/v2 behind
// the Client interface. A Session is not safe for concurrent use; callers
// must serialize operations on one session.
package mailbox
