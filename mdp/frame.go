package mdp

// popStr splits the first frame off msg, returning it and the remainder.
// Popping an empty message returns two empty values rather than panicking.
func popStr(msg []string) (string, []string) {
	if len(msg) == 0 {
		return "", msg
	}
	return msg[0], msg[1:]
}

// unwrap strips a return address, and the empty delimiter frame following
// it if present, off the front of msg.
func unwrap(msg []string) (string, []string) {
	if len(msg) == 0 {
		return "", msg
	}
	address := msg[0]
	rest := msg[1:]
	if len(rest) > 0 && rest[0] == "" {
		rest = rest[1:]
	}
	return address, rest
}

// wrap prepends a return address and empty delimiter frame to msg.
func wrap(address string, msg []string) []string {
	wrapped := make([]string, 0, len(msg)+2)
	wrapped = append(wrapped, address, "")
	return append(wrapped, msg...)
}

func toFrames(strs []string) [][]byte {
	frames := make([][]byte, len(strs))
	for i, s := range strs {
		frames[i] = []byte(s)
	}
	return frames
}

func toStrings(frames [][]byte) []string {
	strs := make([]string, len(frames))
	for i, f := range frames {
		strs[i] = string(f)
	}
	return strs
}
