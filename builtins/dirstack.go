// Directory-stack and bookmark builtins (pushd, popd, dirs, bookmark):
// the operations over shellstate's dir stack and persisted bookmark map.
// Bookmark targets go through utils.ExpandPath so "~" works.
package builtins

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/diillson/krusty/shellstate"
	"github.com/diillson/krusty/utils"
)

func pushdBuiltin() Builtin {
	return Builtin{
		Name:        "pushd",
		Description: "push the current directory and change to a new one",
		Usage:       "pushd dir",
		Execute: func(args []string, st *shellstate.State) Result {
			if len(args) == 0 {
				return errResult(1, "krusty: pushd: no other directory")
			}
			target, err := utils.ExpandPath(args[0])
			if err != nil {
				target = args[0]
			}
			if err := st.PushDir(target); err != nil {
				return errResult(1, "%v", err)
			}
			return okResult(dirsLine(st))
		},
	}
}

func popdBuiltin() Builtin {
	return Builtin{
		Name:        "popd",
		Description: "pop the top of the directory stack and change to it",
		Usage:       "popd",
		Execute: func(args []string, st *shellstate.State) Result {
			if _, err := st.PopDir(); err != nil {
				return errResult(1, "%v", err)
			}
			return okResult(dirsLine(st))
		},
	}
}

func dirsBuiltin() Builtin {
	return Builtin{
		Name:        "dirs",
		Description: "print the directory stack",
		Usage:       "dirs",
		Execute: func(args []string, st *shellstate.State) Result {
			return okResult(dirsLine(st))
		},
	}
}

func dirsLine(st *shellstate.State) string {
	return strings.Join(st.DirStackView(), " ") + "\n"
}

func bookmarkBuiltin() Builtin {
	return Builtin{
		Name:        "bookmark",
		Description: "name the current (or a given) directory for fast cd",
		Usage:       "bookmark [add NAME [path] | rm NAME | list]",
		Execute: func(args []string, st *shellstate.State) Result {
			if len(args) == 0 || args[0] == "list" {
				return okResult(formatBookmarks(st))
			}

			switch args[0] {
			case "add":
				if len(args) < 2 {
					return errResult(1, "krusty: bookmark: usage: bookmark add NAME [path]")
				}
				path := ""
				if len(args) >= 3 {
					if expanded, err := utils.ExpandPath(args[2]); err == nil {
						path = expanded
					} else {
						path = args[2]
					}
				}
				if err := st.SetBookmark(args[1], path); err != nil {
					return errResult(1, "%v", err)
				}
				return okResult("")
			case "rm":
				if len(args) < 2 {
					return errResult(1, "krusty: bookmark: usage: bookmark rm NAME")
				}
				if err := st.RemoveBookmark(args[1]); err != nil {
					return errResult(1, "%v", err)
				}
				return okResult("")
			default:
				return errResult(1, "krusty: bookmark: unknown subcommand %q", args[0])
			}
		},
	}
}

func formatBookmarks(st *shellstate.State) string {
	names := make([]string, 0)
	view := st.BookmarksView()
	for name := range view {
		names = append(names, name)
	}
	for i := 1; i < len(names); i++ {
		for j := i; j > 0 && names[j-1] > names[j]; j-- {
			names[j-1], names[j] = names[j], names[j-1]
		}
	}
	var b strings.Builder
	for _, name := range names {
		fmt.Fprintf(&b, ":%s\t%s\n", name, view[name])
	}
	return b.String()
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
