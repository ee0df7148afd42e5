package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ergochat/readline"
	"github.com/google/uuid"

	"github.com/burrowdb/burrow"
)

var completer = readline.NewPrefixCompleter(
	readline.PcItem("help"),
	readline.PcItem("use"),
	readline.PcItem("bucket"),
	readline.PcItem("index"),
	readline.PcItem("query"),
	readline.PcItem("remove"),
	readline.PcItem("get"),
	readline.PcItem("reconcile"),
	readline.PcItem("stats"),
	readline.PcItem("exit"),
	readline.PcItem("quit"),
)

func filterInput(r rune) (rune, bool) {
	switch r {
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

const usage = `commands:
  use <collection>          switch collection (opens its store lazily)
  bucket <name>             switch bucket (default "default")
  index <oid|-> <terms...>  index an object; "-" generates an oid
  query <term>              list oids indexed under term
  remove <oid>              drop an object from all four tables
  get <kind> <route>        raw row: kind is 0-3, route is text or iid
  reconcile                 detect and repair index inconsistencies
  stats                     engine metrics for the current collection
  exit | quit`

type session struct {
	pool       *burrow.Pool
	collection string
	bucket     string
	store      *burrow.Store
	release    func()
}

func (s *session) use(collection string) error {
	store, release, err := s.pool.Acquire(collection)
	if err != nil {
		return err
	}
	if s.release != nil {
		s.release()
	}
	s.collection = collection
	s.store = store
	s.release = release
	return nil
}

func (s *session) action() *burrow.Action {
	return burrow.NewAction(s.bucket, s.store)
}

func (s *session) get(kindArg, route string) (string, error) {
	kind, err := strconv.Atoi(kindArg)
	if err != nil || kind < 0 || kind > 3 {
		return "", fmt.Errorf("bad kind %q, want 0-3", kindArg)
	}
	act := s.action()
	switch burrow.IndexKind(kind) {
	case burrow.TermToIIDs:
		iids, found, err := act.GetTermToIIDs(route)
		if err != nil || !found {
			return "absent", err
		}
		return fmt.Sprintf("%v", iids), nil
	case burrow.OIDToIID:
		iid, found, err := act.GetOIDToIID(route)
		if err != nil || !found {
			return "absent", err
		}
		return fmt.Sprintf("%d", iid), nil
	case burrow.IIDToOID:
		iid, err := parseIID(route)
		if err != nil {
			return "", err
		}
		oid, found, err := act.GetIIDToOID(iid)
		if err != nil || !found {
			return "absent", err
		}
		return oid, nil
	default:
		iid, err := parseIID(route)
		if err != nil {
			return "", err
		}
		terms, found, err := act.GetIIDToTerms(iid)
		if err != nil || !found {
			return "absent", err
		}
		return fmt.Sprintf("%v", terms), nil
	}
}

func parseIID(s string) (burrow.IID, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("bad iid %q", s)
	}
	return burrow.IID(v), nil
}

func main() {
	if len(os.Args) < 2 {
		_, _ = fmt.Fprintln(os.Stderr, "usage: burrow <store-path>")
		os.Exit(2)
	}

	l, err := readline.NewEx(&readline.Config{
		Prompt:          "burrow> ",
		HistoryFile:     "/tmp/burrow-history.tmp",
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		panic(err)
	}
	defer l.Close()
	l.CaptureExitSignal()

	s := &session{
		pool:   burrow.NewPool(burrow.Config{Path: os.Args[1]}),
		bucket: "default",
	}
	defer s.pool.Close()

	if err := s.use("default"); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	for {
		line, err := l.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				break
			}
			continue
		} else if err == io.EOF {
			break
		}

		args := strings.Fields(strings.TrimSpace(line))
		if len(args) == 0 {
			continue
		}
		cmd := args[0]
		args = args[1:]
		err = nil

		switch cmd {
		case "help":
			fmt.Println(usage)
		case "exit", "quit":
			if s.release != nil {
				s.release()
			}
			if err := s.pool.Close(); err != nil {
				_, _ = fmt.Fprintln(os.Stderr, err.Error())
				os.Exit(1)
			}
			os.Exit(0)
		case "use":
			if len(args) != 1 {
				err = fmt.Errorf("usage: use <collection>")
				break
			}
			err = s.use(args[0])
		case "bucket":
			if len(args) != 1 {
				err = fmt.Errorf("usage: bucket <name>")
				break
			}
			s.bucket = args[0]
		case "index":
			if len(args) < 2 {
				err = fmt.Errorf("usage: index <oid|-> <terms...>")
				break
			}
			oid := args[0]
			if oid == "-" {
				oid = uuid.NewString()
			}
			var iid burrow.IID
			iid, err = s.action().Index(oid, args[1:])
			if err == nil {
				fmt.Printf("%s -> iid %d\n", oid, iid)
			}
		case "query":
			if len(args) != 1 {
				err = fmt.Errorf("usage: query <term>")
				break
			}
			var oids []string
			oids, err = s.action().Lookup(args[0])
			if err == nil {
				for _, oid := range oids {
					fmt.Println(oid)
				}
				fmt.Printf("%d result(s)\n", len(oids))
			}
		case "remove":
			if len(args) != 1 {
				err = fmt.Errorf("usage: remove <oid>")
				break
			}
			var removed bool
			removed, err = s.action().Remove(args[0])
			if err == nil && !removed {
				fmt.Println("not indexed")
			}
		case "get":
			if len(args) != 2 {
				err = fmt.Errorf("usage: get <kind> <route>")
				break
			}
			var out string
			out, err = s.get(args[0], args[1])
			if err == nil {
				fmt.Println(out)
			}
		case "reconcile":
			var report burrow.ReconcileReport
			report, err = s.action().Reconcile()
			if err == nil {
				fmt.Printf("dangling=%d orphaned=%d deleted_rows=%d\n",
					report.DanglingIdentifiers, report.OrphanedPostings, report.DeletedRows)
			}
		case "stats":
			fmt.Printf("disk usage: %d bytes\n%s", s.store.DiskUsage(), s.store.Metrics())
		default:
			_, _ = fmt.Fprintf(os.Stderr, "command unknown: %s\n", cmd)
		}

		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "error executing %s: %s\n", cmd, err.Error())
		}
	}
}
