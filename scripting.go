package main

import (
	"errors"
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// errQuit unwinds a script that called emu.quit().
var errQuit = errors.New("quit")

type script struct {
	m    *machine
	quit bool
}

// runScript runs a Lua file against the machine. The script drives it through
// the emu table:
//
//	emu.run(cycles)        emu.step([n])          emu.cycles()
//	emu.type(text)         emu.send(text)         emu.press(key)  emu.release(key)
//	emu.insert(path, [d])  emu.eject([d])
//	emu.reg(name)          emu.setreg(name, v)    emu.peek(addr)  emu.poke(addr, v)
//	emu.quit()
//
// After emu.quit() the machine's quit flag is set and the rest of the script
// is skipped.
func runScript(m *machine, path string) error {
	L := lua.NewState()
	defer L.Close()

	s := &script{m: m}
	emu := L.NewTable()
	L.SetFuncs(emu, map[string]lua.LGFunction{
		"run":     s.run,
		"step":    s.step,
		"cycles":  s.cycles,
		"type":    s.typeText,
		"send":    s.send,
		"press":   s.press,
		"release": s.release,
		"insert":  s.insert,
		"eject":   s.eject,
		"reg":     s.reg,
		"setreg":  s.setReg,
		"peek":    s.peek,
		"poke":    s.poke,
		"quit":    s.doQuit,
	})
	L.SetGlobal("emu", emu)

	err := L.DoFile(path)
	if s.quit {
		m.quit = true
		return nil
	}
	if err != nil {
		return fmt.Errorf("script %s: %w", path, err)
	}
	return nil
}

func (s *script) check(L *lua.LState, err error) {
	if err != nil {
		L.RaiseError("%v", err)
	}
}

func (s *script) run(L *lua.LState) int {
	s.check(L, s.m.cpu.Run(L.CheckInt(1)))
	return 0
}

func (s *script) step(L *lua.LState) int {
	n := L.OptInt(1, 1)
	for i := 0; i < n; i++ {
		s.check(L, s.m.cpu.Step())
	}
	return 0
}

func (s *script) cycles(L *lua.LState) int {
	L.Push(lua.LNumber(s.m.cpu.Cycles()))
	return 1
}

func (s *script) keyboard(L *lua.LState) bool {
	if s.m.keyboard == nil {
		L.RaiseError("no keyboard attached")
		return false
	}
	return true
}

func (s *script) typeText(L *lua.LState) int {
	text := L.CheckString(1)
	if s.keyboard(L) {
		for _, ch := range text {
			s.m.keyboard.Type(ch)
		}
	}
	return 0
}

// send types each argument followed by a space, then Return.
func (s *script) send(L *lua.LState) int {
	if !s.keyboard(L) {
		return 0
	}
	for i := 1; i <= L.GetTop(); i++ {
		for _, ch := range L.CheckString(i) {
			s.m.keyboard.Type(ch)
		}
		s.m.keyboard.Type(' ')
	}
	s.m.keyboard.Type('\n')
	return 0
}

func (s *script) press(L *lua.LState) int {
	key := uint16(L.CheckInt(1))
	if s.keyboard(L) {
		s.m.keyboard.Press(key)
	}
	return 0
}

func (s *script) release(L *lua.LState) int {
	key := uint16(L.CheckInt(1))
	if s.keyboard(L) {
		s.m.keyboard.Release(key)
	}
	return 0
}

func (s *script) insert(L *lua.LState) int {
	s.check(L, s.m.insert(L.OptInt(2, 0), L.CheckString(1)))
	return 0
}

func (s *script) eject(L *lua.LState) int {
	s.check(L, s.m.eject(L.OptInt(1, 0)))
	return 0
}

func (s *script) reg(L *lua.LState) int {
	name := L.CheckString(1)
	v, _, ok := s.m.cpu.RegByName(name)
	if !ok {
		L.RaiseError("unknown register %q", name)
	}
	L.Push(lua.LNumber(v))
	return 1
}

func (s *script) setReg(L *lua.LState) int {
	name := L.CheckString(1)
	if !s.m.cpu.SetRegByName(name, uint16(L.CheckInt(2))) {
		L.RaiseError("unknown register %q", name)
	}
	return 0
}

func (s *script) peek(L *lua.LState) int {
	addr := uint16(L.CheckInt(1))
	L.Push(lua.LNumber(s.m.cpu.Memory()[addr]))
	return 1
}

func (s *script) poke(L *lua.LState) int {
	addr := uint16(L.CheckInt(1))
	s.m.cpu.Memory()[addr] = uint16(L.CheckInt(2))
	return 0
}

func (s *script) doQuit(L *lua.LState) int {
	s.quit = true
	L.RaiseError("%v", errQuit)
	return 0
}
