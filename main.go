// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/invowk/actx/cmd/actx"

func main() {
	cmd.Execute()
}
