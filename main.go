package main

import "github.com/ValentinKolb/mvKV/cmd"

func main() {
	cmd.Execute()
}
