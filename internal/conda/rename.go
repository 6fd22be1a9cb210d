package conda

import (
	"context"
	"fmt"
)

// RenameResult reports what the rename flow actually did.
type RenameResult struct {
	NewEnv     *Environment
	OldRemoved bool
}

// Rename implements rename as clone-verify-delete:
//
//  1. Clone env to newName. A clone failure aborts the flow with the old
//     environment untouched.
//  2. Re-list environments and confirm newName is present. If it is not,
//     the flow fails without deleting anything, leaving both (or just the
//     old) environment intact. A rename never ends partially applied.
//  3. Ask confirm whether to delete the old environment. Deletion happens
//     only on explicit confirmation after verified success; declining
//     keeps both environments.
//
// progress, when non-nil, receives one line per step for UI display.
func Rename(ctx context.Context, client *Client, env *Environment, newName string, confirm func(old *Environment) bool, progress func(string)) (*RenameResult, error) {
	if newName == "" || newName == env.Name {
		return nil, fmt.Errorf("new name must be non-empty and different from %q", env.Name)
	}

	step := func(msg string) {
		if progress != nil {
			progress(msg)
		}
	}

	step(fmt.Sprintf("cloning %s to %s", env.Name, newName))
	if err := client.CloneEnv(ctx, env, newName); err != nil {
		return nil, fmt.Errorf("clone failed, %s left untouched: %w", env.Name, err)
	}

	step("verifying cloned environment")
	newEnv, err := client.FindEnv(ctx, newName)
	if err != nil {
		return nil, fmt.Errorf("clone of %s did not appear in the environment list; nothing was deleted: %w", env.Name, err)
	}

	result := &RenameResult{NewEnv: newEnv}

	if confirm == nil || !confirm(env) {
		step(fmt.Sprintf("keeping old environment %s", env.Name))
		return result, nil
	}

	step(fmt.Sprintf("deleting old environment %s", env.Name))
	if err := client.RemoveEnv(ctx, env); err != nil {
		return result, fmt.Errorf("new environment %s is in place, but deleting %s failed: %w", newName, env.Name, err)
	}
	result.OldRemoved = true
	return result, nil
}
