// main.go
package main

import "slot-booking/cmd"

func main() {
	cmd.Execute()
}
