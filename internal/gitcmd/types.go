package gitcmd

// CommitInfo captures one commit parsed from a git log listing.
type CommitInfo struct {
	Hash      string
	Timestamp int64
	Author    string
	Date      string
	Subject   string
}
