package main

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

var emailRegexp = regexp.MustCompile("^[a-zA-Z0-9.!#$%&'*+/=?^_`{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$")

type validator struct {
	errors map[string]string
}

func newValidator() *validator {
	return &validator{
		errors: make(map[string]string),
	}
}

func (v *validator) toError() error {
	if v == nil {
		return errors.New("")
	}
	data, err := json.Marshal(v.errors)
	if err != nil {
		return err
	}
	return errors.New(string(data))
}

func (v *validator) hasErrors() bool {
	return len(v.errors) != 0
}

func (v *validator) checkCond(cond bool, key, msg string) {
	if cond {
		return
	}
	if _, ok := v.errors[key]; !ok {
		v.errors[key] = msg
	}
}

func (v *validator) checkName(name string) {
	v.checkCond(name != "", "name", "must be provided")
	v.checkCond(len(name) <= 255, "name", "must be atmost 255 characters")
}

func (v *validator) checkEmail(email string) {
	v.checkCond(email != "", "email", "must be provided")
	v.checkCond(emailRegexp.Match([]byte(email)), "email", "must be a valid email address")
}

func (v *validator) checkPassword(password string) {
	v.checkCond(password != "", "password", "must be provided")
	v.checkCond(len(password) >= 7, "password", "must be atleast 7 characters long")
	v.checkCond(len(password) <= 72, "password", "must be atmost 72 characters long")
	v.checkCond(!strings.Contains(password, "password"), "password", `must not contain "password"`)
}

func (v *validator) checkAge(age int) {
	v.checkCond(age >= 0, "age", "must be a positive number")
}

func (v *validator) checkDescription(description string) {
	v.checkCond(description != "", "description", "must be provided")
	v.checkCond(len(description) <= 1024, "description", "must be atmost 1024 characters")
}
