// Job-control builtins (jobs, fg, bg, wait, kill, disown): the builtin
// surface over the job manager. Signals always target a job's process
// group through job.Signal, never a bare pid.
package builtins

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/diillson/krusty/job"
	"github.com/diillson/krusty/shellstate"
	"golang.org/x/sys/unix"
)

func jobsBuiltin() Builtin {
	return Builtin{
		Name:        "jobs",
		Description: "list tracked background/suspended jobs",
		Usage:       "jobs",
		Execute: func(args []string, st *shellstate.State) Result {
			var b strings.Builder
			for _, j := range st.Jobs.All() {
				fmt.Fprintf(&b, "[%d]%s  %s                 %s\n", j.ID, bgMark(j.Background), j.Status, j.Command)
			}
			return okResult(b.String())
		},
	}
}

func bgMark(background bool) string {
	if background {
		return "+"
	}
	return "-"
}

func fgBuiltin() Builtin {
	return Builtin{
		Name:        "fg",
		Description: "bring a job to the foreground and wait for it",
		Usage:       "fg [%job]",
		Execute: func(args []string, st *shellstate.State) Result {
			designator := ""
			if len(args) > 0 {
				designator = args[0]
			}
			j, err := st.Jobs.Resolve(designator)
			if err != nil {
				return errResult(1, "%v", err)
			}

			if j.Status == job.Stopped {
				_ = job.Signal(j, unix.SIGCONT)
			}
			st.Jobs.MarkRunning(j.ID, false)

			code, _ := st.Jobs.WaitForJob(j.ID)
			return Result{ExitCode: code, Stdout: j.Command + "\n"}
		},
	}
}

func bgBuiltin() Builtin {
	return Builtin{
		Name:        "bg",
		Description: "resume a suspended job in the background",
		Usage:       "bg [%job]",
		Execute: func(args []string, st *shellstate.State) Result {
			designator := ""
			if len(args) > 0 {
				designator = args[0]
			}
			j, err := st.Jobs.Resolve(designator)
			if err != nil {
				return errResult(1, "%v", err)
			}
			if j.Status == job.Stopped {
				_ = job.Signal(j, unix.SIGCONT)
			}
			st.Jobs.MarkRunning(j.ID, true)
			return okResult(fmt.Sprintf("[%d] %s &\n", j.ID, j.Command))
		},
	}
}

func waitBuiltin() Builtin {
	return Builtin{
		Name:        "wait",
		Description: "wait for background jobs to finish",
		Usage:       "wait [%job]",
		Execute: func(args []string, st *shellstate.State) Result {
			if len(args) == 0 {
				var last int
				for _, j := range st.Jobs.All() {
					if j.Status == job.Done {
						continue
					}
					code, _ := st.Jobs.WaitForJob(j.ID)
					last = code
				}
				st.Jobs.CleanupJobs()
				return Result{ExitCode: last}
			}

			j, err := st.Jobs.Resolve(args[0])
			if err != nil {
				return errResult(1, "%v", err)
			}
			code, _ := st.Jobs.WaitForJob(j.ID)
			st.Jobs.CleanupJobs()
			return Result{ExitCode: code}
		},
	}
}

// killBuiltin treats an unresolvable job designator as a BuiltinError
// (exit 1), distinct from the 128+signum space used once a signal is
// actually delivered.
func killBuiltin() Builtin {
	return Builtin{
		Name:        "kill",
		Description: "send a signal to a job or process",
		Usage:       "kill [-SIGNAL] %job|pid",
		Execute: func(args []string, st *shellstate.State) Result {
			if len(args) == 0 {
				return errResult(1, "krusty: kill: usage: kill [-SIGNAL] %%job|pid")
			}

			sig := unix.SIGTERM
			i := 0
			if strings.HasPrefix(args[0], "-") {
				if s, ok := parseSignal(args[0][1:]); ok {
					sig = s
					i = 1
				}
			}
			if i >= len(args) {
				return errResult(1, "krusty: kill: missing job/process target")
			}

			target := args[i]
			if strings.HasPrefix(target, "%") {
				j, err := st.Jobs.Resolve(target)
				if err != nil {
					return errResult(1, "%v", err)
				}
				if err := job.Signal(j, sig); err != nil {
					return errResult(1, "krusty: kill: %v", err)
				}
				return okResult("")
			}

			pid, err := strconv.Atoi(target)
			if err != nil {
				return errResult(1, "krusty: kill: %s: arguments must be process or job IDs", target)
			}
			if err := unix.Kill(pid, sig); err != nil {
				return errResult(1, "krusty: kill: %v", err)
			}
			return okResult("")
		},
	}
}

func parseSignal(name string) (unix.Signal, bool) {
	switch strings.ToUpper(strings.TrimPrefix(name, "SIG")) {
	case "TERM":
		return unix.SIGTERM, true
	case "KILL":
		return unix.SIGKILL, true
	case "INT":
		return unix.SIGINT, true
	case "STOP", "TSTP":
		return unix.SIGTSTP, true
	case "CONT":
		return unix.SIGCONT, true
	case "HUP":
		return unix.SIGHUP, true
	}
	if n, err := strconv.Atoi(name); err == nil {
		return unix.Signal(n), true
	}
	return 0, false
}

func disownBuiltin() Builtin {
	return Builtin{
		Name:        "disown",
		Description: "remove a job from the job table without signaling it",
		Usage:       "disown [%job]",
		Execute: func(args []string, st *shellstate.State) Result {
			designator := ""
			if len(args) > 0 {
				designator = args[0]
			}
			j, err := st.Jobs.Resolve(designator)
			if err != nil {
				return errResult(1, "%v", err)
			}
			st.Jobs.Remove(j.ID)
			return okResult("")
		},
	}
}
