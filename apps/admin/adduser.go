package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/cheti/core/user"
)

// addUser creates a user.User
func (cli *commandLine) addUser(name, email string, roles []string) error {
	usr, err := cli.usrSvc.Create(context.Background(), user.NewUser{
		Name:  name,
		Email: email,
		Roles: roles,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "user created: %s <%s> id=%s\n", usr.Name, usr.Email, usr.ID)
	return nil
}

func (cli *commandLine) addMentor(mentorRef, learnerRef, courseID string) error {
	ctx := context.Background()
	mentorID, err := cli.userID(ctx, mentorRef)
	if err != nil {
		return errors.Wrap(err, "getting mentor")
	}
	learnerID, err := cli.userID(ctx, learnerRef)
	if err != nil {
		return errors.Wrap(err, "getting learner")
	}
	if err = cli.usrSvc.AddMentor(ctx, mentorID, learnerID, courseID); err != nil {
		return err
	}
	fmt.Fprintln(cli.out, "mentor added")
	return nil
}

// lookupUser finds a user by email when ref contains an @, by ID otherwise.
func (cli *commandLine) lookupUser(ctx context.Context, ref string) (user.User, error) {
	if strings.Contains(ref, "@") {
		return cli.usrSvc.GetByEmail(ctx, ref)
	}
	return cli.usrSvc.GetByID(ctx, ref)
}

// userID resolves emails to IDs; IDs are returned as is.
func (cli *commandLine) userID(ctx context.Context, ref string) (string, error) {
	if !strings.Contains(ref, "@") {
		return ref, nil
	}
	usr, err := cli.usrSvc.GetByEmail(ctx, ref)
	return usr.ID, err
}
