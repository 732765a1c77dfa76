package replay

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrDiscover    = errors.New("failed to discover replay frames")
	ErrReplayName  = errors.New("unrecognized replay file name")
	errFrameRead   = errors.New("failed to read frame file")
	replayFrameRex = regexp.MustCompile(`^(?P<name>[0-9a-fA-F-]{73})\.(?P<idx>\d+)\.vgr$`)
)

// FrameFile is one discovered on-disk frame fragment.
type FrameFile struct {
	Path  string
	Name  string
	Index int
}

// ParseFrameName splits a `{match_uuid}-{session_uuid}.{idx}.vgr` file
// name into its replay name and frame index.
func ParseFrameName(fileName string) (string, int, error) {
	match := replayFrameRex.FindStringSubmatch(fileName)
	if match == nil {
		return "", 0, ErrReplayName
	}

	index, errIndex := strconv.Atoi(match[2])
	if errIndex != nil {
		return "", 0, errors.Join(errIndex, ErrReplayName)
	}

	return match[1], index, nil
}

// SplitReplayName extracts the match and session UUIDs from a replay
// name of the form `{match_uuid}-{session_uuid}`.
func SplitReplayName(name string) (uuid.UUID, uuid.UUID, error) {
	const uuidLen = 36
	if len(name) != uuidLen*2+1 {
		return uuid.Nil, uuid.Nil, ErrReplayName
	}

	matchID, errMatch := uuid.Parse(name[:uuidLen])
	if errMatch != nil {
		return uuid.Nil, uuid.Nil, errors.Join(errMatch, ErrReplayName)
	}

	sessionID, errSession := uuid.Parse(name[uuidLen+1:])
	if errSession != nil {
		return uuid.Nil, uuid.Nil, errors.Join(errSession, ErrReplayName)
	}

	return matchID, sessionID, nil
}

// FindMatches walks the root directory and groups all frame files by
// replay name. macOS resource forks and similar junk are skipped.
func FindMatches(root string) (map[string][]FrameFile, error) {
	found := map[string][]FrameFile{}

	errWalk := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}

		base := filepath.Base(path)
		if strings.HasPrefix(base, "._") {
			return nil
		}

		name, index, errName := ParseFrameName(base)
		if errName != nil {
			return nil //nolint:nilerr
		}

		found[name] = append(found[name], FrameFile{Path: path, Name: name, Index: index})

		return nil
	})
	if errWalk != nil {
		return nil, errors.Join(errWalk, ErrDiscover)
	}

	for name := range found {
		frames := found[name]
		sort.Slice(frames, func(i, j int) bool { return frames[i].Index < frames[j].Index })
		found[name] = frames
	}

	return found, nil
}

// LoadFrames reads the discovered frame files into memory as ordered
// Frame buffers, ready for Assemble.
func LoadFrames(files []FrameFile) ([]Frame, error) {
	frames := make([]Frame, 0, len(files))
	for _, file := range files {
		data, errRead := os.ReadFile(file.Path)
		if errRead != nil {
			return nil, errors.Join(errRead, errFrameRead)
		}

		frames = append(frames, Frame{Index: file.Index, Data: data})
	}

	return frames, nil
}

// Load discovers, reads and assembles a single match. The path may be a
// frame file or a directory containing exactly one replay; when the
// directory holds several, the first by name is used.
func Load(path string) (Match, error) {
	info, errStat := os.Stat(path)
	if errStat != nil {
		return Match{}, errors.Join(errStat, ErrDiscover)
	}

	root := path
	wantName := ""
	if !info.IsDir() {
		root = filepath.Dir(path)
		name, _, errName := ParseFrameName(filepath.Base(path))
		if errName != nil {
			return Match{}, errName
		}
		wantName = name
	}

	matches, errFind := FindMatches(root)
	if errFind != nil {
		return Match{}, errFind
	}
	if len(matches) == 0 {
		return Match{}, ErrDiscover
	}

	if wantName == "" {
		names := make([]string, 0, len(matches))
		for name := range matches {
			names = append(names, name)
		}
		sort.Strings(names)
		wantName = names[0]
	}

	files, found := matches[wantName]
	if !found {
		return Match{}, ErrDiscover
	}

	frames, errLoad := LoadFrames(files)
	if errLoad != nil {
		return Match{}, errLoad
	}

	match, errAssemble := Assemble(frames)
	if errAssemble != nil {
		return Match{}, errAssemble
	}

	match.Name = wantName
	if matchID, sessionID, errSplit := SplitReplayName(wantName); errSplit == nil {
		match.MatchID = matchID
		match.SessionID = sessionID
	}
	match.Mode = DetectMode(match.Frames[0].Data)

	return match, nil
}
