// Package errcode defines the stable, wire-facing error identifiers the
// agent reports to the gateway in LOAD_ERR/RESULT/ERROR lines.
package errcode

// Code is a stable error identifier. It is a string newtype, comparable,
// allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes. Names match the wire vocabulary in spec.md §6/§7 exactly.
const (
	BadParams       Code = "BAD_PARAMS"
	NoMem           Code = "NO_MEM"
	Timeout         Code = "TIMEOUT"
	BadCRC          Code = "BAD_CRC"
	LoadFail        Code = "LOAD_FAIL"
	InstantiateFail Code = "INSTANTIATE_FAIL"
	NoExecEnv       Code = "NO_EXEC_ENV"
	NoFunc          Code = "NO_FUNC"
	NoModule        Code = "NO_MODULE"
	Busy            Code = "BUSY"
	UnknownCommand  Code = "UNKNOWN_COMMAND"
	Exception       Code = "EXCEPTION"
	Stopped         Code = "STOPPED"
	OK              Code = "OK"
)

// Of extracts a Code from an error: err itself if it is a Code, err.Code()
// if it implements that method, OK for nil, and Exception otherwise.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	if c, ok := err.(Code); ok {
		return c
	}
	type coder interface{ Code() Code }
	if x, ok := err.(coder); ok {
		return x.Code()
	}
	return Exception
}
