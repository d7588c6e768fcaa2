//go:build js && wasm

// Command wasm exposes the browser-side path and cache rules to JavaScript.
package main

import (
	"fmt"
	"syscall/js"
	"time"

	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/folderpath"
	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/model"
	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/pathcache"
	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/policy"
	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/route"
)

func main() {
	pol := policy.Default()

	age := func(fetchedAt js.Value) time.Duration {
		return time.Since(time.UnixMilli(int64(fetchedAt.Float())))
	}

	// format: isStale(fetchedAtMillis, path) -> bool
	isStale := js.FuncOf(func(this js.Value, args []js.Value) any {
		if len(args) != 2 {
			return false
		}
		return pathcache.IsStale(age(args[0]), args[1].String())
	})

	// format: isExpired(fetchedAtMillis, path) -> bool
	isExpired := js.FuncOf(func(this js.Value, args []js.Value) any {
		if len(args) != 2 {
			return true
		}
		return pathcache.IsExpired(age(args[0]), args[1].String())
	})

	stringFunc := func(fn func(string) string) js.Func {
		return js.FuncOf(func(this js.Value, args []js.Value) any {
			if len(args) != 1 {
				return ""
			}
			return fn(args[0].String())
		})
	}

	// format: cacheKey(path, type) -> string
	cacheKey := js.FuncOf(func(this js.Value, args []js.Value) any {
		if len(args) != 2 {
			return ""
		}
		ct, err := model.ParseContentType(args[1].String())
		if err != nil {
			return ""
		}
		return pathcache.Key(args[0].String(), ct)
	})

	// format: setPolicy(json) -> error string or ""
	setPolicy := js.FuncOf(func(this js.Value, args []js.Value) any {
		if len(args) != 1 {
			return "setPolicy takes one argument"
		}
		p, err := policy.Parse([]byte(args[0].String()))
		if err != nil {
			return err.Error()
		}
		pol = p
		return ""
	})

	// format: parseRoute(path) -> {kind, type, path} or {error}
	parseRoute := js.FuncOf(func(this js.Value, args []js.Value) any {
		obj := js.Global().Get("Object").New()
		if len(args) != 1 {
			obj.Set("error", "parseRoute takes one argument")
			return obj
		}
		r, err := route.Parse(args[0].String(), pol)
		if err != nil {
			obj.Set("error", err.Error())
			return obj
		}
		obj.Set("path", r.Path())
		obj.Set("type", string(route.ContentTypeOf(r)))
		switch r := r.(type) {
		case route.Home:
			obj.Set("kind", "home")
		case route.Department:
			obj.Set("kind", "department")
		case route.Stage:
			obj.Set("kind", string(r.Kind))
		case route.Documents:
			obj.Set("kind", string(r.Kind))
		}
		return obj
	})

	js.Global().Set("isStale", isStale)
	js.Global().Set("isExpired", isExpired)
	js.Global().Set("encodeSegment", stringFunc(folderpath.Encode))
	js.Global().Set("decodeSegment", stringFunc(folderpath.Decode))
	js.Global().Set("normalizePath", stringFunc(folderpath.Canonical))
	js.Global().Set("cacheKey", cacheKey)
	js.Global().Set("setPolicy", setPolicy)
	js.Global().Set("parseRoute", parseRoute)

	fmt.Println("pastq wasm initialized")

	select {}
}
