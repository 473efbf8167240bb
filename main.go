// SPDX-License-Identifier: MPL-2.0

package main

import "github.com/rigup/rigup/cmd/rigup"

func main() {
	cmd.Execute()
}
