// control builtins: the dir/env/flag/alias control-plane the registry
// dispatches by name. Each mutates *shellstate.State in place and
// reports through the shared Result shape.
package builtins

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/diillson/krusty/shellstate"
	"github.com/diillson/krusty/utils"
)

func cdBuiltin() Builtin {
	return Builtin{
		Name:        "cd",
		Description: "change the current working directory",
		Usage:       "cd [-|dir]",
		Execute: func(args []string, st *shellstate.State) Result {
			target := "~"
			if len(args) > 0 {
				target = args[0]
			}

			switch {
			case target == "-":
				if st.OldPwd == "" {
					return errResult(1, "krusty: cd: OLDPWD not set")
				}
				target = st.OldPwd
			case target == "~":
				home, err := utils.ExpandPath("~")
				if err != nil {
					return errResult(1, "krusty: cd: %v", err)
				}
				target = home
			case strings.HasPrefix(target, ":"):
				name := target[1:]
				path, ok := st.BookmarksView()[name]
				if !ok {
					return errResult(1, "krusty: cd: %s: no such bookmark", name)
				}
				target = path
			case len(target) == 2 && target[0] == '-' && target[1] >= '1' && target[1] <= '9':
				stack := st.DirStackView()
				idx := int(target[1] - '0')
				if idx >= len(stack) {
					return errResult(1, "krusty: cd: %s: directory stack index out of range", target)
				}
				target = stack[idx]
			default:
				if expanded, err := utils.ExpandPath(target); err == nil {
					target = expanded
				}
			}

			if err := st.Chdir(target); err != nil {
				return errResult(1, "%v", err)
			}
			return okResult("")
		},
	}
}

func pwdBuiltin() Builtin {
	return Builtin{
		Name:        "pwd",
		Description: "print the current working directory",
		Usage:       "pwd",
		Execute: func(args []string, st *shellstate.State) Result {
			return okResult(st.Cwd + "\n")
		},
	}
}

func exitBuiltin() Builtin {
	return Builtin{
		Name:        "exit",
		Description: "terminate the shell",
		Usage:       "exit [code]",
		Execute: func(args []string, st *shellstate.State) Result {
			code := st.LastExitCode
			if len(args) > 0 {
				if n, err := strconv.Atoi(args[0]); err == nil {
					code = n
				}
			}
			st.ExitRequested = true
			st.ExitCode = code
			return Result{ExitCode: code}
		},
	}
}

func exportBuiltin() Builtin {
	return Builtin{
		Name:        "export",
		Description: "set an environment variable, or list exported variables",
		Usage:       "export [NAME=VALUE]...",
		Execute: func(args []string, st *shellstate.State) Result {
			if len(args) == 0 {
				var b strings.Builder
				for _, kv := range st.Environ() {
					b.WriteString("export " + kv + "\n")
				}
				return okResult(b.String())
			}
			for _, a := range args {
				eq := strings.IndexByte(a, '=')
				if eq < 0 {
					v, _ := st.Getenv(a)
					st.Setenv(a, v)
					continue
				}
				st.Setenv(a[:eq], a[eq+1:])
			}
			return okResult("")
		},
	}
}

func unsetBuiltin() Builtin {
	return Builtin{
		Name:        "unset",
		Description: "remove an environment variable",
		Usage:       "unset NAME...",
		Execute: func(args []string, st *shellstate.State) Result {
			for _, name := range args {
				st.Unsetenv(name)
			}
			return okResult("")
		},
	}
}

func aliasBuiltin() Builtin {
	return Builtin{
		Name:        "alias",
		Description: "define or list command aliases",
		Usage:       "alias [name[=value]]...",
		Execute: func(args []string, st *shellstate.State) Result {
			if len(args) == 0 {
				names := st.Aliases.All()
				sort.Strings(names)
				var b strings.Builder
				for _, n := range names {
					v, _ := st.Aliases.Get(n)
					b.WriteString(fmt.Sprintf("alias %s=%s\n", n, utils.ShellQuote(v)))
				}
				return okResult(b.String())
			}

			var b strings.Builder
			var exitCode int
			for _, a := range args {
				eq := strings.IndexByte(a, '=')
				if eq < 0 {
					v, ok := st.Aliases.Get(a)
					if !ok {
						b.WriteString(fmt.Sprintf("krusty: alias: %s: not found\n", a))
						exitCode = 1
						continue
					}
					b.WriteString(fmt.Sprintf("alias %s=%s\n", a, utils.ShellQuote(v)))
					continue
				}
				st.Aliases.Set(a[:eq], a[eq+1:])
			}
			return Result{ExitCode: exitCode, Stdout: b.String()}
		},
	}
}

func unaliasBuiltin() Builtin {
	return Builtin{
		Name:        "unalias",
		Description: "remove a command alias",
		Usage:       "unalias name...",
		Execute: func(args []string, st *shellstate.State) Result {
			var exitCode int
			for _, name := range args {
				if !st.Aliases.Unset(name) {
					exitCode = 1
				}
			}
			return Result{ExitCode: exitCode}
		},
	}
}

func setBuiltin() Builtin {
	return Builtin{
		Name:        "set",
		Description: "toggle shell options (-e/-u/-x, -o pipefail)",
		Usage:       "set [-e|+e] [-u|+u] [-x|+x] [-o pipefail|+o pipefail]",
		Execute: func(args []string, st *shellstate.State) Result {
			i := 0
			for i < len(args) {
				a := args[i]
				switch a {
				case "-e":
					st.Errexit = true
				case "+e":
					st.Errexit = false
				case "-u":
					st.Nounset = true
				case "+u":
					st.Nounset = false
				case "-x":
					st.Xtrace = true
				case "+x":
					st.Xtrace = false
				case "-o", "+o":
					if i+1 < len(args) && args[i+1] == "pipefail" {
						st.Pipefail = a == "-o"
						i++
					}
				}
				i++
			}
			return okResult("")
		},
	}
}
