package shell

import (
	"errors"
	"net/http"

	"github.com/cjoudrey/gluahttp"
	"github.com/rs/zerolog/log"
	lua "github.com/yuin/gopher-lua"
	luajson "layeh.com/gopher-json"
)

func getShell(L *lua.LState) *ShellController {
	shell := L.GetGlobal("numble_shell")
	ud, ok := shell.(*lua.LUserData)
	if !ok {
		panic("luserdata not right type")
	}
	sc, ok := ud.Value.(*ShellController)
	if !ok {
		panic("shellcontroller not right type")
	}
	return sc
}

func Solve(L *lua.LState) int {
	lv := L.ToString(1)
	sc := getShell(L)
	cmd, err := extractFields("solve " + lv)
	if err != nil {
		log.Err(err).Msg("error-parsing-solve")
		return 0
	}
	r, err := sc.solve(cmd)
	if err != nil {
		log.Err(err).Msg("error-executing-solve")
		L.Push(lua.LString("ERROR: " + err.Error()))
		return 1
	}
	L.Push(lua.LString(r.message))
	// return number of results pushed to stack.
	return 1
}

func New(L *lua.LState) int {
	lv := L.ToString(1)
	sc := getShell(L)
	cmd, err := extractFields("new " + lv)
	if err != nil {
		log.Err(err).Msg("error-parsing-new")
		return 0
	}
	r, err := sc.newPuzzle(cmd)
	if err != nil {
		log.Err(err).Msg("error-executing-new")
		return 0
	}
	L.Push(lua.LString(r.message))
	return 1
}

func Show(L *lua.LState) int {
	sc := getShell(L)
	r, err := sc.show(&shellcmd{
		cmd: "show",
	})
	if err != nil {
		log.Err(err).Msg("error-executing-show")
		return 0
	}
	L.Push(lua.LString(r.message))
	return 1
}

func Reveal(L *lua.LState) int {
	sc := getShell(L)
	r, err := sc.reveal(&shellcmd{
		cmd: "reveal",
	})
	if err != nil {
		log.Err(err).Msg("error-executing-reveal")
		L.Push(lua.LString("ERROR: " + err.Error()))
		return 1
	}
	L.Push(lua.LString(r.message))
	return 1
}

func Set(L *lua.LState) int {
	lv := L.ToString(1)
	sc := getShell(L)
	cmd, err := extractFields("set " + lv)
	if err != nil {
		log.Err(err).Msg("error-parsing-set")
		return 0
	}
	r, err := sc.set(cmd)
	if err != nil {
		log.Err(err).Msg("error-executing-set")
		L.Push(lua.LString("ERROR: " + err.Error()))
		return 1
	}
	L.Push(lua.LString(r.message))
	return 1
}

func Archive(L *lua.LState) int {
	lv := L.ToString(1)
	sc := getShell(L)
	cmd, err := extractFields("archive " + lv)
	if err != nil {
		log.Err(err).Msg("error-parsing-archive")
		return 0
	}
	r, err := sc.archiveCmd(cmd)
	if err != nil {
		log.Err(err).Msg("error-executing-archive")
		return 0
	}
	L.Push(lua.LString(r.message))
	return 1
}

func (sc *ShellController) script(cmd *shellcmd) (*Response, error) {
	if cmd.args == nil {
		return nil, errors.New("need arguments for script")
	}

	filepath := cmd.args[0]

	L := lua.NewState()
	defer L.Close()

	// Scripts get json and http modules so they can save results or
	// fetch puzzles from somewhere.
	luajson.Preload(L)
	L.PreloadModule("http", gluahttp.NewHttpModule(&http.Client{}).Loader)

	lsc := L.NewUserData()
	lsc.Value = sc

	L.SetGlobal("numble_shell", lsc)
	L.SetGlobal("numble_solve", L.NewFunction(Solve))
	L.SetGlobal("numble_new", L.NewFunction(New))
	L.SetGlobal("numble_show", L.NewFunction(Show))
	L.SetGlobal("numble_reveal", L.NewFunction(Reveal))
	L.SetGlobal("numble_set", L.NewFunction(Set))
	L.SetGlobal("numble_archive", L.NewFunction(Archive))

	if err := L.DoFile(filepath); err != nil {
		log.Err(err).Msg("there was a error")
		return nil, err
	}
	return nil, nil
}
