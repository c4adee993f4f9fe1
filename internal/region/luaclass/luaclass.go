// Package luaclass classifies grid cells into regions with a Lua script.
//
// The script must define a global function
//
//	function classify(x, y, z, params) ... end
//
// receiving cell-centre coordinates in metres and a table of named numeric
// parameters. It returns the region name as a string; nil or "" selects the
// background region.
package luaclass

import (
	"errors"
	"fmt"
	"sort"

	lua "github.com/Shopify/go-lua"

	"github.com/banshee-data/micromag/internal/region"
)

// FuncName is the global the script must define.
const FuncName = "classify"

// ErrNoClassifier reports a script without a classify function.
var ErrNoClassifier = errors.New("script does not define classify")

// Classifier evaluates a loaded script. It is not safe for concurrent use.
type Classifier struct {
	state *lua.State
	name  string
}

// Load reads and runs a Lua file.
func Load(path string) (*Classifier, error) {
	l := lua.NewState()
	lua.OpenLibraries(l)
	if err := lua.LoadFile(l, path, ""); err != nil {
		return nil, fmt.Errorf("load lua: %w", err)
	}
	return start(l, path)
}

// FromSource runs a Lua chunk held in memory.
func FromSource(src string) (*Classifier, error) {
	l := lua.NewState()
	lua.OpenLibraries(l)
	if err := lua.LoadString(l, src); err != nil {
		return nil, fmt.Errorf("load lua: %w", err)
	}
	return start(l, "<source>")
}

func start(l *lua.State, name string) (*Classifier, error) {
	if err := l.ProtectedCall(0, 0, 0); err != nil {
		return nil, fmt.Errorf("run lua %s: %w", name, err)
	}
	l.Global(FuncName)
	defer l.Pop(1)
	if !l.IsFunction(-1) {
		return nil, fmt.Errorf("%w: %s", ErrNoClassifier, name)
	}
	return &Classifier{state: l, name: name}, nil
}

// Classify calls classify(x, y, z, params).
func (c *Classifier) Classify(x, y, z float64, params region.Params) (string, error) {
	l := c.state
	l.Global(FuncName)
	l.PushNumber(x)
	l.PushNumber(y)
	l.PushNumber(z)
	pushParams(l, params)
	if err := l.ProtectedCall(4, 1, 0); err != nil {
		return "", fmt.Errorf("%s: %w", c.name, err)
	}
	defer l.Pop(1)

	switch l.TypeOf(-1) {
	case lua.TypeNil:
		return "", nil
	case lua.TypeString, lua.TypeNumber:
		s, _ := l.ToString(-1)
		return s, nil
	default:
		return "", fmt.Errorf("%s: classify returned %s, want a region name", c.name, lua.TypeNameOf(l, -1))
	}
}

// pushParams pushes params as a table, filled in key order.
func pushParams(l *lua.State, params region.Params) {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	l.CreateTable(0, len(keys))
	for _, k := range keys {
		l.PushNumber(params[k])
		l.SetField(-2, k)
	}
}

var _ region.Classifier = (*Classifier)(nil)
