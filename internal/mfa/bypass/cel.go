// Copyright 2022 Dimitrij Drus <dadrus@gmx.de>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package bypass

import (
	"errors"
	"fmt"
	"maps"
	"reflect"
	"time"

	"github.com/google/cel-go/cel"

	"github.com/dadrus/bifrost/internal/authn"
)

var errCELResultType = errors.New("result type error")

type celEvaluator struct {
	program cel.Program
}

// CEL bypasses if the expression evaluates to true. The expression has access to
// principal, authentication, request, provider and now.
func CEL(expression string) (Evaluator, error) {
	env, err := cel.NewEnv(
		cel.Variable("principal", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("authentication", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("request", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("provider", cel.StringType),
		cel.Variable("now", cel.TimestampType),
	)
	if err != nil {
		return nil, err
	}

	ast, iss := env.Compile(expression)
	if iss.Err() != nil {
		return nil, iss.Err()
	}

	if !reflect.DeepEqual(ast.OutputType(), cel.BoolType) {
		return nil, fmt.Errorf("%w: wanted bool, got %v", errCELResultType, ast.OutputType())
	}

	prg, err := env.Program(ast, cel.EvalOptions(cel.OptOptimize))
	if err != nil {
		return nil, err
	}

	return &celEvaluator{program: prg}, nil
}

func (e *celEvaluator) Evaluate(providerID string, in Input) bool {
	out, _, err := e.program.Eval(map[string]any{
		"principal":      principalToMap(in.principal()),
		"authentication": authenticationToMap(in.Authentication),
		"request": map[string]any{
			"remote_addr": in.Request.RemoteAddr,
			"headers":     headersToMap(in.Request),
		},
		"provider": providerID,
		"now":      in.Now,
	})
	if err != nil {
		return false
	}

	return out.Value() == true
}

func principalToMap(principal *authn.Principal) map[string]any {
	if principal == nil {
		return map[string]any{"id": "", "attributes": map[string]any{}}
	}

	return map[string]any{"id": principal.ID, "attributes": attributesToMap(principal.Attributes)}
}

func authenticationToMap(auth *authn.Authentication) map[string]any {
	if auth == nil {
		return map[string]any{
			"attributes":          map[string]any{},
			"successful_handlers": []any{},
			"authenticated_at":    time.Time{},
		}
	}

	handlers := make([]any, len(auth.SuccessfulHandlers))
	for idx, name := range auth.SuccessfulHandlers {
		handlers[idx] = name
	}

	return map[string]any{
		"attributes":          attributesToMap(auth.Attributes),
		"successful_handlers": handlers,
		"authenticated_at":    auth.AuthenticatedAt,
	}
}

func attributesToMap(attributes map[string][]any) map[string]any {
	result := make(map[string]any, len(attributes))

	for name, values := range maps.All(attributes) {
		result[name] = values
	}

	return result
}

func headersToMap(req Request) map[string]any {
	result := make(map[string]any, len(req.Headers))

	for name, values := range req.Headers {
		result[name] = values
	}

	return result
}
