package core

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/mikey/translation-grader/internal/utils"
)

const submissionHashLen = 12

// SignatureParts are the inputs that identify one grading computation
type SignatureParts struct {
	Level           Level
	SentenceID      int64
	ModelID         string
	PromptVersion   string
	Submission      string
	CheckerLanguage string
}

// SubmissionKey returns the cache-normalized submission and its short hash
func SubmissionKey(submission string) (normalized, hash string) {
	normalized = utils.NormalizeForCacheKey(submission)
	sum := sha256.Sum256([]byte(normalized))
	return normalized, hex.EncodeToString(sum[:])[:submissionHashLen]
}

// Signature derives the content-addressed cache key
func (p SignatureParts) Signature() string {
	_, hash := SubmissionKey(p.Submission)
	return strings.Join([]string{
		string(p.Level),
		strconv.FormatInt(p.SentenceID, 10),
		p.ModelID,
		p.PromptVersion,
		hash,
		p.CheckerLanguage,
	}, "|")
}
