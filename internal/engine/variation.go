package engine

// Fingerprint returns the normalized prefix of a reply used to detect that the
// same question is about to be asked twice in a row. Stored in the
// conversation state between turns.
func Fingerprint(text string) string {
	norm := normalizeText(text)
	if len(norm) > matchPrefixLength {
		norm = norm[:matchPrefixLength]
	}
	return norm
}

// variationLeadIns are alternate framings substituted when a naive reply would
// exactly repeat the previous prompt.
var variationLeadIns = []string{
	"Let me put that another way. ",
	"Sorry if I wasn't clear. ",
	"Just so we can keep going: ",
}

// varyReply returns reply unchanged unless its fingerprint matches the
// previously emitted prompt, in which case a lead-in is prepended so the user
// never sees the identical question twice running.
func varyReply(reply, lastFingerprint string) string {
	if lastFingerprint == "" || Fingerprint(reply) != lastFingerprint {
		return reply
	}
	for _, lead := range variationLeadIns {
		if candidate := lead + reply; Fingerprint(candidate) != lastFingerprint {
			return candidate
		}
	}
	return reply
}
