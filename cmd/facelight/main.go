// facelight - dims the display when nobody is in front of the webcam
package main

func main() {
	Execute()
}
