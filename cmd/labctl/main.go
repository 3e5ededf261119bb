// labctl is the command line client for the labd daemon.
package main

func main() {
	Execute()
}
