package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"syscall"

	"golang.org/x/term"

	"github.com/eakinwale/acadia/core/result"
	"github.com/eakinwale/acadia/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db      *sql.DB
	usrSvc  *user.Service
	usrRepo user.Repository
	resSvc  *result.Service
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS]                           - run database migrations (up, down, status, ...)")
	fmt.Println("  addadmin -name NAME -email EMAIL                 - create an admin user; the password will be prompted")
	fmt.Println("  adduser -name NAME -email EMAIL -role ROLE       - create a student or lecturer account; the password will be prompted")
	fmt.Println("  resetpassword -email EMAIL                       - reset a user's password; the new password will be prompted")
	fmt.Println("  backfill                                         - recompute stored grades after a grading policy change")
}

func (cli *commandLine) promptPassword(usage func()) (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(syscall.Stdin)
	fmt.Println()
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		usage()
		return "", errHelp
	}
	return string(pwd), nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addAdminCmd := flag.NewFlagSet("addadmin", flag.ExitOnError)
	addAdminName := addAdminCmd.String("name", "", "The admin's full name.")
	addAdminEmail := addAdminCmd.String("email", "", "The admin's email. The password will be prompted next.")

	addUserCmd := flag.NewFlagSet("adduser", flag.ExitOnError)
	addUserName := addUserCmd.String("name", "", "The user's full name.")
	addUserEmail := addUserCmd.String("email", "", "The user's email. The password will be prompted next.")
	addUserRole := addUserCmd.String("role", "student", "The user's role: student or lecturer.")

	resetPwdCmd := flag.NewFlagSet("resetpassword", flag.ExitOnError)
	resetPwdEmail := resetPwdCmd.String("email", "", "The user's email. The new password will be prompted next.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "addadmin":
		if err := addAdminCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addAdminName == "" || *addAdminEmail == "" {
			addAdminCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword(addAdminCmd.Usage)
		if err != nil {
			return err
		}
		return cli.addAdmin(*addAdminName, *addAdminEmail, pwd)
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserName == "" || *addUserEmail == "" {
			addUserCmd.Usage()
			return errHelp
		}
		var roles []string
		switch *addUserRole {
		case "student":
			roles = user.StudentRoles
		case "lecturer":
			roles = user.LecturerRoles
		default:
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword(addUserCmd.Usage)
		if err != nil {
			return err
		}
		return cli.addUser(*addUserName, *addUserEmail, pwd, roles)
	case "resetpassword":
		if err := resetPwdCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPwdEmail == "" {
			resetPwdCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword(resetPwdCmd.Usage)
		if err != nil {
			return err
		}
		return cli.resetPassword(*resetPwdEmail, pwd)
	case "backfill":
		return cli.backfill()
	default:
		cli.printUsage()
		return errHelp
	}
}
