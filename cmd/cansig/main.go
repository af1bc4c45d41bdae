// cansig finds candidate signal bits in unlabeled CAN bus captures.
package main

import "github.com/OpenTraceLab/OpenTraceCAN/cmd/cansig/cmd"

func main() {
	cmd.Execute()
}
