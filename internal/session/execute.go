package session

import (
	"fmt"
	"strings"

	"github.com/jscyril/soundscape/internal/control"
)

// Result is the outcome of one command
type Result struct {
	Lines []string
	Err   error
	Quit  bool
}

// Text joins the result lines, including the error if any
func (r Result) Text() string {
	lines := r.Lines
	if r.Err != nil {
		lines = append(append([]string{}, lines...), "error: "+r.Err.Error())
	}
	return strings.Join(lines, "\n")
}

// Execute runs one command. Errors are reported in the result; they never end the session.
func (s *Session) Execute(cmd control.Command) Result {
	switch cmd.Kind {
	case control.CmdVolume:
		applied := s.SetVolume(cmd.Volume)
		return Result{Lines: []string{fmt.Sprintf("main volume %d%%", applied)}}

	case control.CmdList:
		return Result{Lines: s.describeActive()}

	case control.CmdChange:
		active, err := s.ChangeScene(cmd.Scene)
		if err != nil {
			return Result{Err: err}
		}
		lines := []string{fmt.Sprintf("playing scene %s (%d of %d tracks)",
			active.Scene.Name, len(active.Handles), len(active.Scene.Tracks))}
		for _, f := range active.Failures {
			lines = append(lines, fmt.Sprintf("  failed: %v", f.Err))
		}
		return Result{Lines: lines}

	case control.CmdScenes:
		return Result{Lines: s.describeScenes()}

	case control.CmdStop:
		s.Stop()
		return Result{Lines: []string{"playback stopped"}}

	case control.CmdReload:
		n, err := s.Reload()
		if err != nil {
			return Result{Err: err}
		}
		return Result{Lines: []string{fmt.Sprintf("reloaded %d scenes", n)}}

	case control.CmdHelp:
		return Result{Lines: []string{control.Usage}}

	case control.CmdQuit:
		s.Close()
		return Result{Lines: []string{"bye"}, Quit: true}
	}

	return Result{Lines: []string{control.Usage}}
}

// ExecuteLine parses and runs one line of input
func (s *Session) ExecuteLine(line string) Result {
	cmd, err := control.Parse(line)
	if err != nil {
		return Result{Lines: []string{err.Error()}}
	}
	return s.Execute(cmd)
}

func (s *Session) describeActive() []string {
	active, ok := s.Active()
	if !ok {
		return []string{"no active scene"}
	}

	header := "scene " + active.Scene.Name
	if active.Scene.Description != "" {
		header += ": " + active.Scene.Description
	}
	lines := []string{header, fmt.Sprintf("main volume %d%%", s.player.MainVolumePercent())}

	for _, st := range s.TrackStatuses() {
		state := "stopped"
		switch {
		case st.Err != nil:
			state = "failed: " + st.Err.Error()
		case st.Playing:
			state = fmt.Sprintf("playing at %.2f", st.EffectiveVolume)
		}

		path := st.Track.Path
		if path == "" {
			path = "(no path)"
		}
		lines = append(lines, fmt.Sprintf("  %d. %s  volume %.2f  %s", st.Index+1, path, st.Track.Volume, state))
	}

	if len(active.Scene.Tracks) == 0 {
		lines = append(lines, "  (no tracks)")
	}
	return lines
}

func (s *Session) describeScenes() []string {
	names := s.scenes.ListScenes()
	if len(names) == 0 {
		return []string{"no scenes loaded"}
	}

	current := ""
	if active, ok := s.Active(); ok {
		current = active.Scene.Name
	}

	lines := make([]string, 0, len(names))
	for _, name := range names {
		marker := "  "
		if name == current {
			marker = "* "
		}
		line := marker + name
		if desc, ok := s.scenes.GetDescription(name); ok {
			line += " - " + desc
		}
		lines = append(lines, line)
	}
	return lines
}
