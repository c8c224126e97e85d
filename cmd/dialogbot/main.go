// Command dialogbot runs the Telegram dialogue bot and its maintenance tasks.
package main

func main() {
	Execute()
}
